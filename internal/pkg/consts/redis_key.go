package consts

const (
	UserSimpleInfoKey = "user:simple:info:"
)
