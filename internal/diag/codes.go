package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Препроцессор: include, define
	PreInfo             Code = 1000
	PreMissingInclude   Code = 1001
	PreIncludeCycle     Code = 1002
	PreIncludeDepth     Code = 1003
	PreMalformedInclude Code = 1004
	PreMalformedDefine  Code = 1005
	PreMacroRedefined   Code = 1006
	PreUndefUnknown     Code = 1007
	PreDanglingContinue Code = 1008
	PreUnknownDirective Code = 1009

	// Ввод/вывод
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IOEncoding      Code = 4002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:         "Unknown error",
		PreInfo:             "Preprocessor information",
		PreMissingInclude:   "included file not found",
		PreIncludeCycle:     "file includes itself",
		PreIncludeDepth:     "include nesting too deep",
		PreMalformedInclude: "malformed include line",
		PreMalformedDefine:  "malformed #define",
		PreMacroRedefined:   "macro redefined",
		PreUndefUnknown:     "#undef of a name that is not defined",
		PreDanglingContinue: "continuation at end of file",
		PreUnknownDirective: "unknown preprocessor directive ignored",
		IOInfo:              "I/O information",
		IOLoadFileError:     "I/O load file error",
		IOEncoding:          "cannot decode source file",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("PRE%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
