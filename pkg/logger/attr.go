package logger

import (
	"fmt"
	"log/slog"
	"time"
)

func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error returns an empty attribute for a nil error, so it can be passed unconditionally.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// ItemID logs a cache identity using its fmt representation.
func ItemID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	if s, ok := id.(fmt.Stringer); ok {
		return slog.String("item_id", s.String())
	}
	return slog.Any("item_id", id)
}

func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Size logs image dimensions as "WxH".
func Size(width, height int) slog.Attr {
	return slog.String("size", fmt.Sprintf("%dx%d", width, height))
}

func Count(name string, n int) slog.Attr {
	return slog.Int(name, n)
}
