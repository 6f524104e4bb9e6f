package models

import "errors"

// Таксономия ошибок сервиса
var (
	// ErrValidation - некорректный вход клиента (400)
	ErrValidation = errors.New("validation error")
	// ErrStorage - недоступно хранилище или нарушено ограничение
	ErrStorage = errors.New("storage error")
	// ErrExternalService - сбой внешнего LLM API, нет ключа или превышен лимит
	ErrExternalService = errors.New("external service error")
)
