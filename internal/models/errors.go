package models

import "errors"

// Общие ошибки предметной области. Слои хранилища и сервисов оборачивают их,
// HTTP-обработчики сопоставляют с кодами ответа через errors.Is.
var (
	// ErrNotFound — запись не найдена или принадлежит другому пользователю.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput — входные данные не прошли проверку.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable — хранилище недоступно, операцию можно повторить.
	ErrUnavailable = errors.New("persistence unavailable")
)
