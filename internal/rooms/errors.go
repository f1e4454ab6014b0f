package rooms

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrCodeGeneration      = errors.New("failed to generate unique room code after multiple attempts")
)
