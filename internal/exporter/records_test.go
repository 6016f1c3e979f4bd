package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

func TestWriteRecordsRoundTrip(t *testing.T) {
	rows := []domain.PovertyRow{
		{Department: "Ain", Poverty: domain.Number(10.7), Abstention: domain.Number(52.318)},
		{Department: "Aisne", Poverty: domain.Missing(), Abstention: domain.Number(55)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Libellé du département,Taux de Pauvreté,% Abs/Ins", lines[0])
	assert.Equal(t, "Ain,10.7,52.318", lines[1])
	assert.Equal(t, "Aisne,,55", lines[2])

	back, err := ReadRecords[domain.PovertyRow](&buf)
	require.NoError(t, err)
	require.Len(t, back, 2)
	for i := range rows {
		assert.Equal(t, rows[i].Department, back[i].Department)
		assert.True(t, rows[i].Poverty.Equal(back[i].Poverty))
		assert.True(t, rows[i].Abstention.Equal(back[i].Abstention))
	}
}

func TestWriteRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords[domain.NuanceVotes](&buf, nil))
	assert.Equal(t, "Nuance,Voix,Elu\n", buf.String())
}

func TestReadRecordsEmptyInput(t *testing.T) {
	rows, err := ReadRecords[domain.NuanceVotes](strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
