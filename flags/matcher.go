// file: flags/matcher.go
package flags

import (
	"DaliCTF/models"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownFlagType Flag 类型未注册
var ErrUnknownFlagType = errors.New("unknown flag type")

// Comparator 判断提交内容是否匹配某个 Flag，不得有副作用
type Comparator interface {
	Compare(flag models.Flag, provided string) (bool, error)
}

// ComparatorFunc 允许直接用函数注册比较器
type ComparatorFunc func(flag models.Flag, provided string) (bool, error)

func (f ComparatorFunc) Compare(flag models.Flag, provided string) (bool, error) {
	return f(flag, provided)
}

// Registry Flag 类型 -> 比较器。实时判题与补判使用同一个 Registry
type Registry map[string]Comparator

// DefaultRegistry 内置 static / regex 两种 Flag
func DefaultRegistry() Registry {
	return Registry{
		models.FlagTypeStatic: ComparatorFunc(compareStatic),
		models.FlagTypeRegex:  ComparatorFunc(compareRegex),
	}
}

// Compare 按 Flag 类型分派
func (r Registry) Compare(flag models.Flag, provided string) (bool, error) {
	cmp, ok := r[flag.Type]
	if !ok {
		return false, fmt.Errorf("%w: %q (flag %d)", ErrUnknownFlagType, flag.Type, flag.ID)
	}
	return cmp.Compare(flag, provided)
}

// MatchError 记录某个 Flag 比较失败的原因
type MatchError struct {
	FlagID uint32
	Err    error
}

func (e MatchError) Error() string {
	return fmt.Sprintf("flag %d: %v", e.FlagID, e.Err)
}

func (e MatchError) Unwrap() error {
	return e.Err
}

// MatchAny 依次比较所有 Flag，命中第一个即返回。
// 比较出错的 Flag 视为不匹配并继续，错误通过 errs 返回给调用方记录日志
func (r Registry) MatchAny(flags []models.Flag, provided string) (matched bool, errs []MatchError) {
	for _, f := range flags {
		ok, err := r.Compare(f, provided)
		if err != nil {
			errs = append(errs, MatchError{FlagID: f.ID, Err: err})
			continue
		}
		if ok {
			return true, errs
		}
	}
	return false, errs
}

func compareStatic(flag models.Flag, provided string) (bool, error) {
	if flag.Data == models.FlagDataCaseInsensitive {
		return strings.EqualFold(flag.Content, provided), nil
	}
	return subtle.ConstantTimeCompare([]byte(flag.Content), []byte(provided)) == 1, nil
}

func compareRegex(flag models.Flag, provided string) (bool, error) {
	pattern := "^(?:" + flag.Content + ")$"
	if flag.Data == models.FlagDataCaseInsensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("compile regex flag: %w", err)
	}
	return re.MatchString(provided), nil
}
