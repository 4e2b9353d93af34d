package dto

// ProgramResponse describes one entry of the program table.
type ProgramResponse struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// IdentifierResponse is the parsed form of a NIM.
type IdentifierResponse struct {
	NIM         string `json:"nim"`
	Year        int    `json:"year"`
	ProgramCode string `json:"program_code"`
	Program     string `json:"program,omitempty"`
	Sequence    int    `json:"sequence"`
}
