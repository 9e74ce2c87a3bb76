package handler

import "errors"

// errReceiptTooLarge rejects receipt uploads above maxReceiptSize.
var errReceiptTooLarge = errors.New("receipt file exceeds the 10 MiB upload limit")
