package regtext

const (
	// ============================================================================
	// .reg File Format Tokens
	// ============================================================================

	// RegFileHeader is the required header line for .reg files version 5.00
	RegFileHeader = "Windows Registry Editor Version 5.00"

	// RegFileHeaderV4 is the legacy ANSI header still written by old tools
	RegFileHeaderV4 = "REGEDIT4"

	// ============================================================================
	// Delimiters and Structural Tokens
	// ============================================================================

	// KeyOpenBracket marks the start of a registry key path
	KeyOpenBracket = "["

	// KeyCloseBracket marks the end of a registry key path
	KeyCloseBracket = "]"

	// DeleteKeyPrefix marks a key for deletion (e.g., [-HKEY_LOCAL_MACHINE\...])
	DeleteKeyPrefix = "-"

	// ValueAssignment separates value names from their data
	ValueAssignment = "="

	// DefaultValuePrefix marks the default (unnamed) value
	DefaultValuePrefix = "@="

	// CommentPrefix marks a comment line
	CommentPrefix = ";"

	// DeleteValueToken marks a value for deletion
	DeleteValueToken = "-"

	// ============================================================================
	// Quote and Escape Characters
	// ============================================================================

	// Quote is the double-quote character for value names and string data
	Quote = "\""

	// Backslash is used for escaping, path separators and line continuation
	Backslash = "\\"

	// EscapedQuote is the escaped double-quote sequence
	EscapedQuote = "\\\""

	// EscapedBackslash is the escaped backslash sequence
	EscapedBackslash = "\\\\"

	// ============================================================================
	// Line Endings
	// ============================================================================

	// CRLF is the Windows line ending (carriage return + line feed)
	CRLF = "\r\n"

	// CR is the carriage return character
	CR = "\r"

	// ============================================================================
	// Value Type Prefixes
	// ============================================================================

	// DWORDPrefix identifies a DWORD value in .reg format
	DWORDPrefix = "dword:"

	// HexPrefix identifies binary data in .reg format
	HexPrefix = "hex:"

	// HexTypedPrefix starts a typed hex value such as hex(2): or hex(b):
	HexTypedPrefix = "hex("

	// HexTypeFormat is the format string for typed hex values: hex(%x):
	HexTypeFormat = "hex(%x):"

	// ============================================================================
	// Hex Data Formatting
	// ============================================================================

	// HexByteSeparator separates bytes in hex data
	HexByteSeparator = ","

	// HexByteFormat is the format string for a single hex byte
	HexByteFormat = "%02x"

	// DWORDHexFormat is the format string for DWORD values (8 hex digits)
	DWORDHexFormat = "%08x"

	// DWORDHexLength is the expected length of a DWORD hex string
	DWORDHexLength = 8

	// HexLineWidth is where emitted hex data wraps onto a continuation line
	HexLineWidth = 76

	// HexContinuationIndent starts each continuation line
	HexContinuationIndent = "  "

	// ============================================================================
	// Encoding Names
	// ============================================================================

	// EncodingUTF8 is the identifier for UTF-8 encoding
	EncodingUTF8 = "UTF-8"

	// EncodingUTF16LE is the identifier for UTF-16 little-endian encoding
	EncodingUTF16LE = "UTF-16LE"

	// EncodingWindows1252 is the ANSI code page used by REGEDIT4 files
	EncodingWindows1252 = "WINDOWS-1252"

	// ============================================================================
	// Buffer and Parsing Sizes
	// ============================================================================

	// ScannerInitialBufferSize is the initial buffer size for the .reg file scanner
	ScannerInitialBufferSize = 64 * 1024 // 64KB

	// ScannerMaxLineSize is the maximum line size for the .reg file scanner
	ScannerMaxLineSize = 1024 * 1024 // 1MB
)

var (
	// UTF16LEBOM is the byte order mark for UTF-16 little-endian
	UTF16LEBOM = []byte{0xFF, 0xFE}

	// UTF8BOM is the byte order mark for UTF-8
	UTF8BOM = []byte{0xEF, 0xBB, 0xBF}
)
