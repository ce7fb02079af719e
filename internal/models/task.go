package models

// Task commands.
const (
	CmdSelfPlay = "selfplay"
	CmdMatch    = "match"
)

// Task is the unit of work handed to a worker on /get-task.
type Task struct {
	Cmd                   string            `json:"cmd"`
	RequiredClientVersion string            `json:"required_client_version"`
	LeelazVersion         string            `json:"leelaz_version"`
	RandomSeed            string            `json:"random_seed"`
	Options               map[string]string `json:"options"`
	OptionsHash           string            `json:"options_hash"`
	Hash                  string            `json:"hash,omitempty"`
	WhiteHash             string            `json:"white_hash,omitempty"`
	BlackHash             string            `json:"black_hash,omitempty"`
}
