package models

// Artifact is the rendered answer: a PNG image and the caption that mirrors its text.
type Artifact struct {
	Location string `json:"location" example:"Berlin"`
	Caption  string `json:"caption"`
	Image    []byte `json:"image" swaggertype:"string" format:"base64"`
}
