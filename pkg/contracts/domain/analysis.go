package domain

// Correlation is a Pearson coefficient over Pairs aligned, non-missing observations.
// Value is Missing when the coefficient is undefined.
type Correlation struct {
	Value Value `json:"value"`
	Pairs int   `json:"pairs"`
}

// Defined reports whether the coefficient could be computed
func (c Correlation) Defined() bool {
	return c.Value.IsNumber()
}

// CorrelationMatrix is a symmetric matrix of correlations between columns
type CorrelationMatrix struct {
	Columns []string  `json:"columns"`
	Values  [][]Value `json:"values"`
}

// Presence classifies how often an entity appears across group lists
type Presence string

const (
	PresenceAlways    Presence = "always"
	PresenceSometimes Presence = "sometimes"
)

// Frequency is the number of group lists an entity appears in
type Frequency struct {
	Entity   string   `json:"entity" csv:"entity"`
	Count    int      `json:"count" csv:"count"`
	Groups   int      `json:"groups" csv:"groups"`
	Presence Presence `json:"presence" csv:"presence"`
}

// DepartmentScore is one department with one measure
type DepartmentScore struct {
	Department string `json:"department" csv:"department"`
	Code       string `json:"code,omitempty" csv:"code,omitempty"`
	Value      Value  `json:"value" csv:"value"`
}

// TrendPoint is the mean abstention of one election
type TrendPoint struct {
	ElectionID     string `json:"election_id" csv:"id_election"`
	Label          string `json:"label" csv:"label"`
	MeanAbstention Value  `json:"mean_abstention" csv:"mean_abstention"`
	Variation      Value  `json:"variation" csv:"variation"`
	Rows           int    `json:"rows" csv:"rows"`
}

// TrendReport is the abstention trend across elections in chronological order
type TrendReport struct {
	Points          []TrendPoint `json:"points"`
	Increases       int          `json:"increases"`
	Decreases       int          `json:"decreases"`
	LargestIncrease *TrendPoint  `json:"largest_increase,omitempty"`
	LargestDecrease *TrendPoint  `json:"largest_decrease,omitempty"`
	Diagnostics     Diagnostics  `json:"diagnostics,omitempty"`
}

// OverviewFilter narrows the abstention overview
type OverviewFilter struct {
	Election    string   `json:"election"`
	Departments []string `json:"departments,omitempty"`
	Commune     string   `json:"commune,omitempty"`
}

// OverviewReport summarizes abstention for one election and an optional area
type OverviewReport struct {
	Filter           OverviewFilter    `json:"filter"`
	Label            string            `json:"label"`
	Rows             int               `json:"rows"`
	TotalRegistered  Value             `json:"total_registered"`
	TotalAbstentions Value             `json:"total_abstentions"`
	AbstentionRate   Value             `json:"abstention_rate"`
	Departments      []DepartmentScore `json:"departments"`
	Highest          []DepartmentScore `json:"highest"`
	Lowest           []DepartmentScore `json:"lowest"`
	Records          []ElectionRecord  `json:"-"`
	Diagnostics      Diagnostics       `json:"diagnostics,omitempty"`
}

// ElectionRanking holds the best and worst voting departments of one election
type ElectionRanking struct {
	ElectionID string            `json:"election_id"`
	Label      string            `json:"label"`
	Best       []DepartmentScore `json:"best"`
	Worst      []DepartmentScore `json:"worst"`
}

// RecurrenceReport tracks which departments keep appearing among the best and worst voters
type RecurrenceReport struct {
	N              int               `json:"n"`
	Elections      []ElectionRanking `json:"elections"`
	BestFrequency  []Frequency       `json:"best_frequency"`
	WorstFrequency []Frequency       `json:"worst_frequency"`
	Diagnostics    Diagnostics       `json:"diagnostics,omitempty"`
}

// BlankNullPoint holds per-election means of blank, null and abstention shares
type BlankNullPoint struct {
	ElectionID string `json:"election_id" csv:"id_election"`
	Label      string `json:"label" csv:"label"`
	Blank      Value  `json:"blank" csv:"% Blancs/Ins"`
	Null       Value  `json:"null" csv:"% Nuls/Ins"`
	Abstention Value  `json:"abstention" csv:"% Abs/Ins"`
}

// BlankNullReport compares blank votes, null votes and abstention
type BlankNullReport struct {
	Points       []BlankNullPoint  `json:"points"`
	Correlations CorrelationMatrix `json:"correlations"`
	Diagnostics  Diagnostics       `json:"diagnostics,omitempty"`
}

// PovertyRow is the mean poverty rate and abstention of one department
type PovertyRow struct {
	Department string `json:"department" csv:"Libellé du département"`
	Poverty    Value  `json:"poverty" csv:"Taux de Pauvreté"`
	Abstention Value  `json:"abstention" csv:"% Abs/Ins"`
}

// PovertyReport crosses poverty rates with abstention, sorted by abstention ascending
type PovertyReport struct {
	Year             string       `json:"year"`
	ElectionYear     string       `json:"election_year"`
	Indicator        string       `json:"indicator"`
	Rows             []PovertyRow `json:"rows"`
	MedianPoverty    Value        `json:"median_poverty"`
	MedianAbstention Value        `json:"median_abstention"`
	Correlation      Correlation  `json:"correlation"`
	Best             []PovertyRow `json:"best"`
	Worst            []PovertyRow `json:"worst"`
	Join             []JoinStats  `json:"join"`
	Diagnostics      Diagnostics  `json:"diagnostics,omitempty"`
}

// UnemploymentRow is the mean first-round abstention of one department in one election
// next to the unemployment rate of the same year
type UnemploymentRow struct {
	DepartmentCode string `json:"department_code" csv:"DEP_CODE"`
	DepartmentName string `json:"department_name" csv:"DEP_NOM"`
	ElectionID     string `json:"election_id" csv:"id_election"`
	Year           string `json:"year" csv:"year"`
	Unemployment   Value  `json:"unemployment" csv:"taux_chomage"`
	Abstention     Value  `json:"abstention" csv:"% Abs/Ins"`
}

// UnemploymentYear is the analysis of one year
type UnemploymentYear struct {
	Year             string            `json:"year"`
	Rows             int               `json:"rows"`
	MeanUnemployment Value             `json:"mean_unemployment"`
	MeanAbstention   Value             `json:"mean_abstention"`
	Highest          []UnemploymentRow `json:"highest"`
	Lowest           []UnemploymentRow `json:"lowest"`
	Correlation      Correlation       `json:"correlation"`
}

// UnemploymentReport crosses unemployment with abstention for several years
type UnemploymentReport struct {
	Years       []UnemploymentYear `json:"years"`
	Merged      []UnemploymentRow  `json:"-"`
	Join        []JoinStats        `json:"join"`
	Diagnostics Diagnostics        `json:"diagnostics,omitempty"`
}

// AgeGroupSummary is the mean abstention and mean proportion of a set of rows
type AgeGroupSummary struct {
	Rows           []AgeRow `json:"rows"`
	MeanAbstention Value    `json:"mean_abstention"`
	MeanProportion Value    `json:"mean_proportion"`
}

// AgeRow is one joined electoral row with the proportion of an age bracket
type AgeRow struct {
	Bracket         string `json:"bracket" csv:"bracket"`
	DepartmentCode  string `json:"department_code" csv:"dep"`
	DepartmentLabel string `json:"department_label" csv:"nomdep"`
	ElectionID      string `json:"election_id" csv:"id_election"`
	CommuneLabel    string `json:"commune_label,omitempty" csv:"Libellé de la commune"`
	Proportion      Value  `json:"proportion" csv:"proportion"`
	Abstention      Value  `json:"abstention" csv:"% Abs/Ins"`
}

// AgeBracketReport compares the departments where a bracket is most and least represented
type AgeBracketReport struct {
	Bracket  string          `json:"bracket"`
	Column   string          `json:"column"`
	Majority AgeGroupSummary `json:"majority"`
	Minority AgeGroupSummary `json:"minority"`
}

// AgeReport crosses age structure with first-round abstention
type AgeReport struct {
	Year        string             `json:"year"`
	N           int                `json:"n"`
	Brackets    []AgeBracketReport `json:"brackets"`
	Join        []JoinStats        `json:"join"`
	Diagnostics Diagnostics        `json:"diagnostics,omitempty"`
}

// NuanceVotes is the vote and seat total of one political nuance
type NuanceVotes struct {
	Nuance string `json:"nuance" csv:"Nuance"`
	Votes  Value  `json:"votes" csv:"Voix"`
	Seats  Value  `json:"seats" csv:"Elu"`
}

// NuanceReport lists votes per nuance for one year, sorted by votes descending
type NuanceReport struct {
	Year        int           `json:"year"`
	Sexes       []string      `json:"sexes,omitempty"`
	Nuances     []NuanceVotes `json:"nuances"`
	Diagnostics Diagnostics   `json:"diagnostics,omitempty"`
}

// IncomePoint is one year of a department income profile
type IncomePoint struct {
	Year          string           `json:"year" csv:"year"`
	PriorityAreas Value            `json:"priority_areas" csv:"nb_qpv"`
	Deciles       map[string]Value `json:"deciles" csv:"-"`
}

// IncomeReport is the yearly income profile of one department
type IncomeReport struct {
	Department  DepartmentKey `json:"department"`
	Label       string        `json:"label"`
	Deciles     []string      `json:"decile_names"`
	Points      []IncomePoint `json:"points"`
	Diagnostics Diagnostics   `json:"diagnostics,omitempty"`
}

// MapSelection identifies a pre-rendered map fragment
type MapSelection struct {
	Year   int    `json:"year"`
	Round  int    `json:"round,omitempty"`
	Level  string `json:"level"`
	File   string `json:"file"`
	Path   string `json:"path,omitempty"`
	Exists bool   `json:"exists"`
}

// SourceInfo describes a catalog source and whether it can be loaded
type SourceInfo struct {
	ID        string `json:"id"`
	File      string `json:"file,omitempty"`
	Format    string `json:"format"`
	KeyColumn string `json:"key_column,omitempty"`
	Available bool   `json:"available"`
}
