package service

import "errors"

// Ошибки уровня сервисов; хендлеры переводят их в HTTP-статусы
var (
	ErrAnalysisNotFound  = errors.New("analysis not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateAnalysis = errors.New("duplicate analysis")
	ErrDoctorExists      = errors.New("doctor already exists")
	ErrDoctorHasAnalyses = errors.New("doctor has analyses")
	ErrNotProcessed      = errors.New("analysis is not processed")
)
