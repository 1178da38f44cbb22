package metadata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Primitive type names of the Edm namespace.
var (
	EdmBinary         = NewFullQualifiedName(EdmNamespace, "Binary")
	EdmBoolean        = NewFullQualifiedName(EdmNamespace, "Boolean")
	EdmByte           = NewFullQualifiedName(EdmNamespace, "Byte")
	EdmDate           = NewFullQualifiedName(EdmNamespace, "Date")
	EdmDateTimeOffset = NewFullQualifiedName(EdmNamespace, "DateTimeOffset")
	EdmDecimal        = NewFullQualifiedName(EdmNamespace, "Decimal")
	EdmDouble         = NewFullQualifiedName(EdmNamespace, "Double")
	EdmDuration       = NewFullQualifiedName(EdmNamespace, "Duration")
	EdmGuid           = NewFullQualifiedName(EdmNamespace, "Guid")
	EdmInt16          = NewFullQualifiedName(EdmNamespace, "Int16")
	EdmInt32          = NewFullQualifiedName(EdmNamespace, "Int32")
	EdmInt64          = NewFullQualifiedName(EdmNamespace, "Int64")
	EdmSByte          = NewFullQualifiedName(EdmNamespace, "SByte")
	EdmSingle         = NewFullQualifiedName(EdmNamespace, "Single")
	EdmStream         = NewFullQualifiedName(EdmNamespace, "Stream")
	EdmString         = NewFullQualifiedName(EdmNamespace, "String")
	EdmTimeOfDay      = NewFullQualifiedName(EdmNamespace, "TimeOfDay")
	EdmUntyped        = NewFullQualifiedName(EdmNamespace, "Untyped")
)

var primitiveTypes = map[string]struct{}{
	"Binary": {}, "Boolean": {}, "Byte": {}, "Date": {}, "DateTimeOffset": {},
	"Decimal": {}, "Double": {}, "Duration": {}, "Guid": {}, "Int16": {},
	"Int32": {}, "Int64": {}, "SByte": {}, "Single": {}, "Stream": {},
	"String": {}, "TimeOfDay": {}, "Untyped": {},
	"PrimitiveType": {}, "ComplexType": {}, "EntityType": {},
}

var spatialTypes = map[string]struct{}{
	"Geography": {}, "GeographyPoint": {}, "GeographyLineString": {}, "GeographyPolygon": {},
	"GeographyMultiPoint": {}, "GeographyMultiLineString": {}, "GeographyMultiPolygon": {},
	"GeographyCollection": {},
	"Geometry": {}, "GeometryPoint": {}, "GeometryLineString": {}, "GeometryPolygon": {},
	"GeometryMultiPoint": {}, "GeometryMultiLineString": {}, "GeometryMultiPolygon": {},
	"GeometryCollection": {},
}

// IsPrimitive reports whether name is a built-in Edm type, spatial types included.
func IsPrimitive(name FullQualifiedName) bool {
	if name.Namespace != EdmNamespace {
		return false
	}
	if _, ok := primitiveTypes[name.Name]; ok {
		return true
	}
	return IsSpatial(name)
}

// IsSpatial reports whether name is one of the Edm.Geography* or Edm.Geometry* types.
func IsSpatial(name FullQualifiedName) bool {
	if name.Namespace != EdmNamespace {
		return false
	}
	_, ok := spatialTypes[name.Name]
	return ok
}

// isIntegral reports whether name can underlie an enumeration.
func isIntegral(name FullQualifiedName) bool {
	switch name {
	case EdmByte, EdmSByte, EdmInt16, EdmInt32, EdmInt64:
		return true
	}
	return false
}

// widening lists the direct implicit promotions between primitive types.
var widening = map[FullQualifiedName][]FullQualifiedName{
	EdmByte:   {EdmInt16},
	EdmSByte:  {EdmInt16},
	EdmInt16:  {EdmInt32},
	EdmInt32:  {EdmInt64},
	EdmInt64:  {EdmDecimal, EdmSingle},
	EdmSingle: {EdmDouble},
}

// promotionCost returns the number of widening steps from one primitive type to
// another. Zero means identical types.
func promotionCost(from, to FullQualifiedName) (int, bool) {
	if from == to {
		return 0, true
	}

	visited := map[FullQualifiedName]struct{}{from: {}}
	frontier := []FullQualifiedName{from}
	for cost := 1; len(frontier) > 0; cost++ {
		var next []FullQualifiedName
		for _, current := range frontier {
			for _, wider := range widening[current] {
				if wider == to {
					return cost, true
				}
				if _, seen := visited[wider]; !seen {
					visited[wider] = struct{}{}
					next = append(next, wider)
				}
			}
		}
		frontier = next
	}
	return 0, false
}

var (
	errInvalidLiteral = errors.New("invalid literal")

	durationPattern = regexp.MustCompile(`^-?P(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?$`)
)

// validatePrimitiveLiteral checks that raw is a valid literal of the primitive
// type name under the given facets.
func validatePrimitiveLiteral(name FullQualifiedName, raw string, facets Facets) error {
	switch name {
	case EdmString:
		if facets.MaxLength != nil && utf8.RuneCountInString(raw) > *facets.MaxLength {
			return fmt.Errorf("%w: string exceeds max length %d", errInvalidLiteral, *facets.MaxLength)
		}
		return nil
	case EdmBoolean:
		if raw != "true" && raw != "false" {
			return fmt.Errorf("%w: '%s' is not a boolean", errInvalidLiteral, raw)
		}
		return nil
	case EdmByte:
		if _, err := strconv.ParseUint(raw, 10, 8); err != nil {
			return fmt.Errorf("%w: '%s' is not a byte", errInvalidLiteral, raw)
		}
		return nil
	case EdmSByte, EdmInt16, EdmInt32, EdmInt64:
		if _, err := strconv.ParseInt(raw, 10, intBitSize(name)); err != nil {
			return fmt.Errorf("%w: '%s' is not a valid %s", errInvalidLiteral, raw, name)
		}
		return nil
	case EdmSingle, EdmDouble:
		switch raw {
		case "INF", "-INF", "NaN":
			return nil
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("%w: '%s' is not a valid %s", errInvalidLiteral, raw, name)
		}
		return nil
	case EdmDecimal:
		return validateDecimalLiteral(raw, facets)
	case EdmGuid:
		if _, err := uuid.Parse(raw); err != nil {
			return fmt.Errorf("%w: '%s' is not a guid", errInvalidLiteral, raw)
		}
		return nil
	case EdmDate:
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return fmt.Errorf("%w: '%s' is not a date", errInvalidLiteral, raw)
		}
		return nil
	case EdmDateTimeOffset:
		if _, err := time.Parse(time.RFC3339Nano, raw); err != nil {
			return fmt.Errorf("%w: '%s' is not a date-time offset", errInvalidLiteral, raw)
		}
		return nil
	case EdmTimeOfDay:
		if _, err := time.Parse("15:04:05.999999999", raw); err != nil {
			return fmt.Errorf("%w: '%s' is not a time of day", errInvalidLiteral, raw)
		}
		return nil
	case EdmDuration:
		if !durationPattern.MatchString(raw) || raw == "P" || strings.HasSuffix(raw, "T") {
			return fmt.Errorf("%w: '%s' is not a duration", errInvalidLiteral, raw)
		}
		return nil
	case EdmBinary:
		if _, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "=")); err != nil {
			return fmt.Errorf("%w: '%s' is not base64url", errInvalidLiteral, raw)
		}
		return nil
	}
	return nil
}

func validateDecimalLiteral(raw string, facets Facets) error {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: '%s' is not a decimal", errInvalidLiteral, raw)
	}

	scale := 0
	if exp := value.Exponent(); exp < 0 {
		scale = int(-exp)
	}
	digits := len(value.Coefficient().String())
	if value.Coefficient().Sign() < 0 {
		digits--
	}

	if facets.Scale != nil && scale > *facets.Scale {
		return fmt.Errorf("%w: '%s' exceeds scale %d", errInvalidLiteral, raw, *facets.Scale)
	}
	if facets.Precision != nil && digits > *facets.Precision {
		return fmt.Errorf("%w: '%s' exceeds precision %d", errInvalidLiteral, raw, *facets.Precision)
	}
	return nil
}

func intBitSize(name FullQualifiedName) int {
	switch name {
	case EdmSByte:
		return 8
	case EdmInt16:
		return 16
	case EdmInt32:
		return 32
	default:
		return 64
	}
}

// validateFacets checks that the facets apply to the primitive type name.
// Facets on non-primitive types are rejected.
func validateFacets(name FullQualifiedName, facets Facets) []string {
	var problems []string

	if facets.MaxLength != nil {
		if name != EdmString && name != EdmBinary && name != EdmStream {
			problems = append(problems, fmt.Sprintf("MaxLength does not apply to %s", name))
		} else if *facets.MaxLength <= 0 {
			problems = append(problems, fmt.Sprintf("MaxLength must be positive, got %d", *facets.MaxLength))
		}
	}

	if facets.Precision != nil {
		switch name {
		case EdmDecimal:
			if *facets.Precision <= 0 {
				problems = append(problems, fmt.Sprintf("Precision must be positive, got %d", *facets.Precision))
			}
		case EdmDateTimeOffset, EdmDuration, EdmTimeOfDay:
			if *facets.Precision < 0 || *facets.Precision > 12 {
				problems = append(problems, fmt.Sprintf("Precision must be between 0 and 12, got %d", *facets.Precision))
			}
		default:
			problems = append(problems, fmt.Sprintf("Precision does not apply to %s", name))
		}
	}

	if facets.Scale != nil {
		switch {
		case name != EdmDecimal:
			problems = append(problems, fmt.Sprintf("Scale does not apply to %s", name))
		case *facets.Scale < 0:
			problems = append(problems, fmt.Sprintf("Scale must not be negative, got %d", *facets.Scale))
		case facets.Precision != nil && *facets.Scale > *facets.Precision:
			problems = append(problems, fmt.Sprintf("Scale %d exceeds precision %d", *facets.Scale, *facets.Precision))
		}
	}

	if facets.SRID != "" {
		if !IsSpatial(name) {
			problems = append(problems, fmt.Sprintf("SRID does not apply to %s", name))
		} else if facets.SRID != "variable" {
			if srid, err := strconv.Atoi(facets.SRID); err != nil || srid < 0 {
				problems = append(problems, fmt.Sprintf("SRID must be 'variable' or a non-negative integer, got '%s'", facets.SRID))
			}
		}
	}

	if facets.Unicode != nil && name != EdmString {
		problems = append(problems, fmt.Sprintf("Unicode does not apply to %s", name))
	}

	return problems
}

// formatPrimitiveLiteral renders a Go value as the URL literal of a primitive type.
func formatPrimitiveLiteral(name FullQualifiedName, value any) (string, error) {
	switch name {
	case EdmString:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%w: expected string for %s, got %T", ErrInvalidKeyValue, name, value)
		}
		return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil

	case EdmBoolean:
		b, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("%w: expected bool for %s, got %T", ErrInvalidKeyValue, name, value)
		}
		return strconv.FormatBool(b), nil

	case EdmByte, EdmSByte, EdmInt16, EdmInt32, EdmInt64:
		n, ok := toInt64(value)
		if !ok {
			return "", fmt.Errorf("%w: expected integer for %s, got %T", ErrInvalidKeyValue, name, value)
		}
		if !fitsIntegral(name, n) {
			return "", fmt.Errorf("%w: %d is out of range for %s", ErrInvalidKeyValue, n, name)
		}
		return strconv.FormatInt(n, 10), nil

	case EdmSingle, EdmDouble:
		f, ok := toFloat64(value)
		if !ok {
			return "", fmt.Errorf("%w: expected number for %s, got %T", ErrInvalidKeyValue, name, value)
		}
		switch {
		case math.IsNaN(f):
			return "NaN", nil
		case math.IsInf(f, 1):
			return "INF", nil
		case math.IsInf(f, -1):
			return "-INF", nil
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil

	case EdmDecimal:
		d, err := toDecimal(value)
		if err != nil {
			return "", err
		}
		return d.String(), nil

	case EdmGuid:
		switch v := value.(type) {
		case uuid.UUID:
			return v.String(), nil
		case string:
			parsed, err := uuid.Parse(v)
			if err != nil {
				return "", fmt.Errorf("%w: '%s' is not a guid", ErrInvalidKeyValue, v)
			}
			return parsed.String(), nil
		}
		return "", fmt.Errorf("%w: expected uuid for %s, got %T", ErrInvalidKeyValue, name, value)

	case EdmDate, EdmDateTimeOffset, EdmTimeOfDay:
		t, ok := value.(time.Time)
		if !ok {
			return "", fmt.Errorf("%w: expected time.Time for %s, got %T", ErrInvalidKeyValue, name, value)
		}
		switch name {
		case EdmDate:
			return t.Format("2006-01-02"), nil
		case EdmTimeOfDay:
			return t.Format("15:04:05.999999999"), nil
		}
		return t.Format(time.RFC3339Nano), nil

	case EdmDuration:
		d, ok := value.(time.Duration)
		if !ok {
			return "", fmt.Errorf("%w: expected time.Duration for %s, got %T", ErrInvalidKeyValue, name, value)
		}
		return "duration'" + formatDuration(d) + "'", nil
	}

	return "", fmt.Errorf("%w: %s cannot be used in a key", ErrInvalidKeyValue, name)
}

func formatDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteString("P")
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	b.WriteString("T")
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	b.WriteString(strconv.FormatFloat(d.Seconds(), 'f', -1, 64))
	b.WriteString("S")
	return b.String()
}

func fitsIntegral(name FullQualifiedName, n int64) bool {
	switch name {
	case EdmByte:
		return n >= 0 && n <= math.MaxUint8
	case EdmSByte:
		return n >= math.MinInt8 && n <= math.MaxInt8
	case EdmInt16:
		return n >= math.MinInt16 && n <= math.MaxInt16
	case EdmInt32:
		return n >= math.MinInt32 && n <= math.MaxInt32
	}
	return true
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), v <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	}
	return 0, false
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if n, ok := toInt64(value); ok {
		return float64(n), true
	}
	return 0, false
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: '%s' is not a decimal", ErrInvalidKeyValue, v)
		}
		return d, nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	}
	if n, ok := toInt64(value); ok {
		return decimal.NewFromInt(n), nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: expected decimal, got %T", ErrInvalidKeyValue, value)
}
