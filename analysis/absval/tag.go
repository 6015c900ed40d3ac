package absval

import "fmt"

// Tag identifies the concrete domain wrapped by a Value.
type Tag int

const (
	TagInt Tag = iota + 1
	TagRIC
	TagZones
	TagDisInt
	TagTermInt
	TagTermDisInt
	TagArrInt
	TagArrRIC
	TagArrZones
	TagArrDisInt
	TagArrTermInt
	TagArrTermDisInt
)

var tagNames = map[Tag]string{
	TagInt:           "int",
	TagRIC:           "ric",
	TagZones:         "zones",
	TagDisInt:        "dis-int",
	TagTermInt:       "term-int",
	TagTermDisInt:    "term-dis-int",
	TagArrInt:        "arr-int",
	TagArrRIC:        "arr-ric",
	TagArrZones:      "arr-zones",
	TagArrDisInt:     "arr-dis-int",
	TagArrTermInt:    "arr-term-int",
	TagArrTermDisInt: "arr-term-dis-int",
}

// Tags lists every tag in declaration order.
func Tags() []Tag {
	res := make([]Tag, 0, len(tagNames))
	for t := TagInt; t <= TagArrTermDisInt; t++ {
		res = append(res, t)
	}
	return res
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// ParseTag returns the tag with the given name.
func ParseTag(name string) (Tag, bool) {
	for t, s := range tagNames {
		if s == name {
			return t, true
		}
	}
	return 0, false
}

// IsRelational holds for domains whose cost grows with the number of
// tracked variables.
func (t Tag) IsRelational() bool {
	return t == TagZones || t == TagArrZones
}

// Fallback returns the non-relational counterpart of a relational tag.
// Non-relational tags are their own fallback.
func (t Tag) Fallback() Tag {
	switch t {
	case TagZones:
		return TagInt
	case TagArrZones:
		return TagArrInt
	}
	return t
}
