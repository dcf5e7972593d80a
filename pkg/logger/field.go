package logger

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Field is one structured key/value. Value is the plain form kept by
// child loggers and the error digest; add renders it onto an event.
type Field struct {
	Key   string
	Value interface{}
	add   func(e *zerolog.Event)
}

func String(key, value string) Field {
	return Field{Key: key, Value: value, add: func(e *zerolog.Event) { e.Str(key, value) }}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value, add: func(e *zerolog.Event) { e.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value, add: func(e *zerolog.Event) { e.Int64(key, value) }}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value, add: func(e *zerolog.Event) { e.Bool(key, value) }}
}

// Duration logs whole milliseconds; keys conventionally end in _ms.
func Duration(key string, value time.Duration) Field {
	return Int64(key, value.Milliseconds())
}

// Decimal logs the exact decimal text so amounts survive JSON parsers.
func Decimal(key string, value decimal.Decimal) Field {
	return String(key, value.String())
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value, add: func(e *zerolog.Event) { e.Interface(key, value) }}
}

// Error logs err under "error". A nil err logs nothing.
func Error(err error) Field {
	if err == nil {
		return Field{Key: zerolog.ErrorFieldName, add: func(*zerolog.Event) {}}
	}
	return Field{Key: zerolog.ErrorFieldName, Value: err.Error(), add: func(e *zerolog.Event) { e.Err(err) }}
}
