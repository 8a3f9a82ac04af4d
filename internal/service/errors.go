package service

import "errors"

var (
	// ErrValidation возвращается для некорректного запроса; хранилище не затрагивается
	ErrValidation = errors.New("validation failed")

	// ErrCapacityExceeded возвращается, когда для группы не хватает мест
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrStorageUnavailable оборачивает любую другую ошибку хранилища
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConfiguration возвращается при неверной настройке расписания или календаря
	ErrConfiguration = errors.New("configuration error")

	ErrNotFound = errors.New("not found")
)
