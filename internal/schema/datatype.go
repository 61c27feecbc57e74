package schema

// DataType is a dialect-neutral SQL column type
type DataType string

const (
	Varchar   DataType = "VARCHAR"
	Char      DataType = "CHAR"
	Text      DataType = "TEXT"
	LongText  DataType = "LONGTEXT"
	Int       DataType = "INT"
	BigInt    DataType = "BIGINT"
	SmallInt  DataType = "SMALLINT"
	TinyInt   DataType = "TINYINT"
	Decimal   DataType = "DECIMAL"
	Float     DataType = "FLOAT"
	Double    DataType = "DOUBLE"
	Date      DataType = "DATE"
	DateTime  DataType = "DATETIME"
	Timestamp DataType = "TIMESTAMP"
	Time      DataType = "TIME"
	Boolean   DataType = "BOOLEAN"
	Bit       DataType = "BIT"
	JSON      DataType = "JSON"
	Blob      DataType = "BLOB"
	Binary    DataType = "BINARY"

	// Enum is accepted on import but is not offered by the editor
	Enum DataType = "ENUM"
)

var editorTypes = []DataType{
	Varchar, Char, Text, LongText,
	Int, BigInt, SmallInt, TinyInt,
	Decimal, Float, Double,
	Date, DateTime, Timestamp, Time,
	Boolean, Bit,
	JSON, Blob, Binary,
}

// EditorTypes returns the types a user can pick in the editor, in display order
func EditorTypes() []DataType {
	out := make([]DataType, len(editorTypes))
	copy(out, editorTypes)
	return out
}

// IsEditorType reports whether t is offered by the editor
func (t DataType) IsEditorType() bool {
	for _, et := range editorTypes {
		if et == t {
			return true
		}
	}
	return false
}

// IsKnown reports whether t is an editor type or a known extension
func (t DataType) IsKnown() bool {
	return t == Enum || t.IsEditorType()
}

// IsIntegerFamily reports whether auto increment is meaningful for t
func (t DataType) IsIntegerFamily() bool {
	switch t {
	case Int, BigInt, SmallInt, TinyInt:
		return true
	}
	return false
}

// UsesLength reports whether the length attribute applies to t
func (t DataType) UsesLength() bool {
	switch t {
	case Varchar, Char, Binary:
		return true
	}
	return false
}

// UsesPrecision reports whether precision and scale apply to t
func (t DataType) UsesPrecision() bool {
	return t == Decimal
}

// IsString reports whether default values of t are written as quoted literals
func (t DataType) IsString() bool {
	switch t {
	case Varchar, Char, Text, LongText, Enum:
		return true
	}
	return false
}
