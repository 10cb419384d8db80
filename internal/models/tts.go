package models

type TTSRequest struct {
	Text string `json:"text"`
}
