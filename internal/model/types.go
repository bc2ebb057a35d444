package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// NetworkSnapshot is the serialized form of a simulator network.
type NetworkSnapshot struct {
	VersionedRecord
	Name        string               `json:"name"`
	Dt          float64              `json:"dt"`
	Layers      []LayerSnapshot      `json:"layers"`
	Connections []ConnectionSnapshot `json:"connections"`
	Roles       RoleBindings         `json:"roles"`
}

type LayerSnapshot struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	N          int       `json:"n"`
	Shape      []int     `json:"shape,omitempty"`
	Rest       float64   `json:"rest"`
	Reset      float64   `json:"reset"`
	Thresh     float64   `json:"thresh"`
	Refrac     float64   `json:"refrac"`
	TcDecay    float64   `json:"tc_decay"`
	TcTrace    float64   `json:"tc_trace"`
	ThetaPlus  float64   `json:"theta_plus"`
	ThetaDecay float64   `json:"theta_decay"`
	Theta      []float64 `json:"theta,omitempty"`
}

type ConnectionSnapshot struct {
	Source  string    `json:"source"`
	Target  string    `json:"target"`
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Weights []float64 `json:"weights"`
	Mask    []bool    `json:"mask,omitempty"`
	Rule    string    `json:"rule"`
	NuPre   float64   `json:"nu_pre"`
	NuPost  float64   `json:"nu_post"`
	WMin    float64   `json:"wmin"`
	WMax    float64   `json:"wmax"`
	Norm    float64   `json:"norm"`
}

// RoleBindings names the layers and connection that fill each network role.
type RoleBindings struct {
	Input         string    `json:"input"`
	Excitatory    string    `json:"excitatory"`
	Inhibitory    string    `json:"inhibitory,omitempty"`
	PrimarySource string    `json:"primary_source"`
	PrimaryTarget string    `json:"primary_target"`
	Geometry      *Geometry `json:"geometry,omitempty"`
}

// Geometry describes a locally-connected receptive-field layout.
type Geometry struct {
	Side     int   `json:"side"`
	Kernel   []int `json:"kernel"`
	Stride   []int `json:"stride"`
	ConvSize []int `json:"conv_size"`
	Filters  int   `json:"filters"`
}

const (
	ClassifierLogReg = "logreg"
	ClassifierRate   = "rate"
)

// ClassifierState holds either a logistic-regression parameter set or a
// rate-based assignment/proportion/rate triple.
type ClassifierState struct {
	VersionedRecord
	Kind        string      `json:"kind"`
	Classes     int         `json:"classes"`
	Coef        [][]float64 `json:"coef,omitempty"`
	Intercept   []float64   `json:"intercept,omitempty"`
	Assignments []int       `json:"assignments,omitempty"`
	Proportions [][]float64 `json:"proportions,omitempty"`
	Rates       [][]float64 `json:"rates,omitempty"`
}

// Checkpoint pairs a network with the classifier state that produced the
// best accuracy seen in a training run.
type Checkpoint struct {
	Name       string          `json:"name"`
	Accuracy   float64         `json:"accuracy"`
	SavedAtUTC string          `json:"saved_at_utc"`
	Network    NetworkSnapshot `json:"network"`
	Classifier ClassifierState `json:"classifier"`
}
