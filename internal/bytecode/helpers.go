package bytecode

import (
	"math/big"
	"strconv"
	"strings"
)

// joinNames encodes a list of excluded property names as a single
// comma-separated constant-pool string, read back by the VM's
// CopyDataProperties implementation (rest-pattern exclusion list).
func joinNames(names []string) string { return strings.Join(names, ",") }

func bigFromDecimal(s string) (*big.Int, error) {
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errBigIntLiteral
	}
	return bi, nil
}

var errBigIntLiteral = strconvError("invalid bigint literal")

type strconvError string

func (e strconvError) Error() string { return string(e) }

func itoa64(i int64) string { return strconv.FormatInt(i, 10) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
