package models

import "github.com/alex-pricope/family-portal/storage"

type PasscodeRequest struct {
	Passcode string     `json:"passcode" binding:"required"`
	Level    FlexNumber `json:"level"`
}

type PasscodeLoginRequest struct {
	Passcode string `json:"passcode" binding:"required"`
}

type PasscodeResponse struct {
	Passcode string `json:"passcode"`
	Level    int    `json:"level"`
}

type PasscodeLoginResponse struct {
	Session string `json:"session"`
	Level   int    `json:"level"`
}

func TransformPasscodeFromStorage(p *storage.Passcode) PasscodeResponse {
	return PasscodeResponse{
		Passcode: p.Passcode,
		Level:    p.Level,
	}
}
