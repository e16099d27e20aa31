package utils

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func Divmod[T Integer](x, y T) (T, T) {
	return x / y, x % y
}

// CeilDiv returns ceil(x/y) for non-negative x and positive y.
func CeilDiv[T Integer](x, y T) T {
	q, r := Divmod(x, y)
	if r > 0 {
		q++
	}
	return q
}
