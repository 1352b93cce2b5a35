package utils

import (
	"bytes"
	"fmt"
)

// TCheck returns an error naming prefix when result differs from expect
func TCheck[T comparable](prefix string, expect T, result T) error {
	if expect != result {
		return errorf(prefix, expect, result)
	}
	return nil
}

func TCheckBytes(prefix string, expect []byte, result []byte) error {
	if !bytes.Equal(expect, result) {
		return fmt.Errorf("%s check failed:expect %X, result %X", prefix, expect, result)
	}
	return nil
}

func TCheckString(prefix string, expect string, result string) error {
	return TCheck(prefix, expect, result)
}

func TCheckBool(prefix string, expect bool, result bool) error {
	return TCheck(prefix, expect, result)
}

func TCheckInt(prefix string, expect int, result int) error {
	return TCheck(prefix, expect, result)
}

func TCheckInt64(prefix string, expect int64, result int64) error {
	return TCheck(prefix, expect, result)
}

func TCheckUint8(prefix string, expect uint8, result uint8) error {
	return TCheck(prefix, expect, result)
}

func TCheckUint32(prefix string, expect uint32, result uint32) error {
	return TCheck(prefix, expect, result)
}

func TCheckUint64(prefix string, expect uint64, result uint64) error {
	return TCheck(prefix, expect, result)
}

func errorf(prefix string, expect interface{}, result interface{}) error {
	return fmt.Errorf("%s check failed:expect %v, result %v", prefix, expect, result)
}
