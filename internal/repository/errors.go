package repository

import "errors"

var ErrNotFound = errors.New("задача не найдена")
var ErrNilTask = errors.New("задача не может быть nil")
