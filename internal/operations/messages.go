package operations

import (
	"errors"
)

type userFacing interface {
	Message() string
}

// UserMessage returns the message shown to the person who uploaded the
// transcript. Pipeline errors carry their own; anything else gets a
// generic message with the diagnostic text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var uf userFacing
	if errors.As(err, &uf) {
		return uf.Message()
	}
	return "処理中にエラーが発生しました: " + err.Error()
}
