package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Column names of the electoral base table
const (
	ColElectionID       = "id_election"
	ColDepartmentCode   = "Code du département"
	ColDepartmentLabel  = "Libellé du département"
	ColCommuneCode      = "Code de la commune"
	ColCommuneLabel     = "Libellé de la commune"
	ColRegistered       = "Inscrits"
	ColAbstentions      = "Abstentions"
	ColVoters           = "Votants"
	ColBlank            = "Blancs"
	ColNull             = "Nuls"
	ColCast             = "Exprimés"
	ColAbstentionPct    = "% Abs/Ins"
	ColVotersPct        = "% Vot/Ins"
	ColBlankPct         = "% Blancs/Ins"
	ColNullPct          = "% Nuls/Ins"
	ColNullOfVotersPct  = "% Nuls/Vot"
	ColCastPct          = "% Exp/Ins"
	ColCastOfVotersPct  = "% Exp/Vot"
	ColGroupCount       = "count"
	FirstRoundIDSuffix  = "_t1"
	SecondRoundIDSuffix = "_t2"
)

// ElectoralCountColumns lists the numeric count columns of the electoral table
var ElectoralCountColumns = []string{
	ColRegistered, ColAbstentions, ColVoters, ColBlank, ColNull, ColCast,
}

// ElectoralPercentColumns lists the percentage columns of the electoral table
var ElectoralPercentColumns = []string{
	ColAbstentionPct, ColVotersPct, ColBlankPct, ColNullPct,
	ColNullOfVotersPct, ColCastPct, ColCastOfVotersPct,
}

var electionIDPattern = regexp.MustCompile(`^(\d{4})_([a-z]+)_t(\d)$`)

var chamberLabels = map[string]string{
	"legi": "Législative",
	"pres": "Présidentielle",
	"euro": "Européenne",
	"muni": "Municipale",
}

// ElectionID identifies one election round, e.g. "2017_legi_t1"
type ElectionID struct {
	Raw     string `json:"id"`
	Year    int    `json:"year"`
	Chamber string `json:"chamber"`
	Round   int    `json:"round"`
}

// ParseElectionID parses "<year>_<chamber>_t<round>"
func ParseElectionID(raw string) (ElectionID, error) {
	s := strings.TrimSpace(raw)
	m := electionIDPattern.FindStringSubmatch(s)
	if m == nil {
		return ElectionID{}, fmt.Errorf("invalid election id %q", raw)
	}
	year, _ := strconv.Atoi(m[1])
	round, _ := strconv.Atoi(m[3])
	return ElectionID{Raw: s, Year: year, Chamber: m[2], Round: round}, nil
}

// Label returns the display label, e.g. "Législative 2017 Tour 1"
func (e ElectionID) Label() string {
	chamber, ok := chamberLabels[e.Chamber]
	if !ok {
		chamber = e.Chamber
	}
	return fmt.Sprintf("%s %d Tour %d", chamber, e.Year, e.Round)
}

// IsFirstRound reports whether the id designates a first round
func (e ElectionID) IsFirstRound() bool {
	return e.Round == 1
}

// ElectionLabel returns the label of a raw id, or the raw id when it cannot be parsed
func ElectionLabel(raw string) string {
	id, err := ParseElectionID(raw)
	if err != nil {
		return raw
	}
	return id.Label()
}

// ElectionYear extracts the year of an election id value as a period string.
// Values that are not election ids yield "".
func ElectionYear(v Value) string {
	id, err := ParseElectionID(v.String())
	if err != nil {
		return ""
	}
	return strconv.Itoa(id.Year)
}

// ElectionRecord is one commune-level result of one election round
type ElectionRecord struct {
	ElectionID       string `csv:"id_election" json:"id_election"`
	DepartmentCode   string `csv:"Code du département" json:"department_code"`
	DepartmentLabel  string `csv:"Libellé du département" json:"department_label"`
	CommuneCode      string `csv:"Code de la commune,omitempty" json:"commune_code,omitempty"`
	CommuneLabel     string `csv:"Libellé de la commune" json:"commune_label"`
	Registered       Value  `csv:"Inscrits" json:"registered"`
	Abstentions      Value  `csv:"Abstentions" json:"abstentions"`
	AbstentionPct    Value  `csv:"% Abs/Ins" json:"abstention_pct"`
	Voters           Value  `csv:"Votants" json:"voters"`
	Blank            Value  `csv:"Blancs" json:"blank"`
	BlankPct         Value  `csv:"% Blancs/Ins" json:"blank_pct"`
	Null             Value  `csv:"Nuls" json:"null"`
	NullPct          Value  `csv:"% Nuls/Ins" json:"null_pct"`
	Cast             Value  `csv:"Exprimés" json:"cast"`
	CastPct          Value  `csv:"% Exp/Ins" json:"cast_pct"`
}

// ElectionRecordAt reads row i of an electoral dataset
func ElectionRecordAt(ds *Dataset, i int) ElectionRecord {
	r := ds.Record(i)
	return ElectionRecord{
		ElectionID:      r.Get(ColElectionID).String(),
		DepartmentCode:  r.Get(ColDepartmentCode).String(),
		DepartmentLabel: r.Get(ColDepartmentLabel).String(),
		CommuneCode:     r.Get(ColCommuneCode).String(),
		CommuneLabel:    r.Get(ColCommuneLabel).String(),
		Registered:      r.Get(ColRegistered),
		Abstentions:     r.Get(ColAbstentions),
		AbstentionPct:   r.Get(ColAbstentionPct),
		Voters:          r.Get(ColVoters),
		Blank:           r.Get(ColBlank),
		BlankPct:        r.Get(ColBlankPct),
		Null:            r.Get(ColNull),
		NullPct:         r.Get(ColNullPct),
		Cast:            r.Get(ColCast),
		CastPct:         r.Get(ColCastPct),
	}
}
