package files

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/CyprienPascal/PIP/internal/config"
	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Geographic levels of the pre-rendered maps
const (
	LevelCirco        = "circo"
	LevelDept         = "dept"
	LevelCommune      = "commune"
	LevelPoverty      = "poverty"
	LevelIncome       = "income"
	LevelHauteGaronne = "haute_garonne"
)

// Levels lists every supported level
var Levels = []string{LevelCirco, LevelDept, LevelCommune, LevelPoverty, LevelIncome, LevelHauteGaronne}

// Years with an indicator map
var (
	povertyMapYears      = []int{2017, 2021}
	incomeMapYears       = []int{2017, 2021}
	hauteGaronneMapYears = []int{2022}
)

// MapFileName resolves the fragment name of a year, round and level. Electoral
// levels need round 1 or 2; indicator levels ignore the round.
func MapFileName(year, round int, level string) (string, error) {
	switch level {
	case LevelCirco, LevelDept, LevelCommune, LevelHauteGaronne:
		if round != 1 && round != 2 {
			return "", fmt.Errorf("%w: round %d for level %s", apierrors.ErrMapNotAvailable, round, level)
		}
	}

	switch level {
	case LevelCirco:
		return fmt.Sprintf("res_%d_T%d_circo_circo.html", year, round), nil
	case LevelDept:
		return fmt.Sprintf("res_%d_T%d_dept.html", year, round), nil
	case LevelCommune:
		return fmt.Sprintf("resultats_electoraux_interactifs_%d_T%d.html", year, round), nil
	case LevelHauteGaronne:
		if !containsInt(hauteGaronneMapYears, year) {
			return "", fmt.Errorf("%w: no Haute-Garonne map for %d", apierrors.ErrMapNotAvailable, year)
		}
		return fmt.Sprintf("res_%d_T%d_circo_Haute_Garonne.html", year, round), nil
	case LevelPoverty:
		if !containsInt(povertyMapYears, year) {
			return "", fmt.Errorf("%w: no poverty map for %d", apierrors.ErrMapNotAvailable, year)
		}
		return fmt.Sprintf("map_taux_pauv_departements_%d.html", year), nil
	case LevelIncome:
		if !containsInt(incomeMapYears, year) {
			return "", fmt.Errorf("%w: no income map for %d", apierrors.ErrMapNotAvailable, year)
		}
		return fmt.Sprintf("map_revenu_departements_%d.html", year), nil
	default:
		return "", fmt.Errorf("%w: unknown level %q", apierrors.ErrMapNotAvailable, level)
	}
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// MapSelector resolves map fragments inside the maps directory
type MapSelector struct {
	dir       string
	discovery *Discovery
	logger    *slog.Logger
}

// NewMapSelector creates a selector over dir
func NewMapSelector(dir string) *MapSelector {
	return &MapSelector{
		dir:       dir,
		discovery: NewDiscovery(dir),
		logger:    slog.Default().With(slog.String("component", "map_selector")),
	}
}

// Select returns the fragment for the parameters and whether it exists on disk.
// A missing fragment is not an error; unknown levels and years are.
func (s *MapSelector) Select(year, round int, level string) (domain.MapSelection, error) {
	name, err := MapFileName(year, round, level)
	if err != nil {
		return domain.MapSelection{}, err
	}

	sel := domain.MapSelection{
		Year:  year,
		Level: level,
		File:  name,
		Path:  filepath.Join(s.dir, name),
	}
	switch level {
	case LevelPoverty, LevelIncome:
	default:
		sel.Round = round
	}
	sel.Exists = config.FileExists(sel.Path)

	if !sel.Exists {
		s.logger.Debug("Map fragment not on disk",
			slog.String("file", name),
			slog.String("year", strconv.Itoa(year)),
			slog.String("level", level))
	}
	return sel, nil
}

// Available lists the fragments present in the maps directory. A missing
// directory yields an empty list.
func (s *MapSelector) Available() []FileInfo {
	fragments, err := s.discovery.FindMapFragments(".")
	if err != nil {
		s.logger.Debug("Maps directory unreadable", slog.String("error", err.Error()))
		return nil
	}
	return fragments
}
