package repository

import "errors"

var ErrNotFound = errors.New("запись не найдена")
var ErrVersionConflict = errors.New("конфликт версий")

// нарушение инварианта "не больше одной незавершённой сессии"
var ErrOpenSessionExists = errors.New("уже есть незавершённая сессия")
