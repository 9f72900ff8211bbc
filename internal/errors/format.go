package errors

import (
	"fmt"
	"log/slog"
	"strings"
)

// FormatForCLI formats an error for terminal output:
//
//	Error: snapshot file is corrupt
//	  Hint: run 'ragindex index' to rebuild it
//	  Code: ERR_205_CORRUPT_INDEX
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	re, ok := as(err)
	if !ok {
		re = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", re.Message)
	if re.Cause != nil && re.Cause.Error() != re.Message {
		fmt.Fprintf(&sb, "  Cause: %v\n", re.Cause)
	}
	if re.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", re.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", re.Code)

	return sb.String()
}

// LogAttrs returns slog attributes describing err, suitable for
// slog.Warn("msg", errors.LogAttrs(err)...).
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	re, ok := as(err)
	if !ok {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", re.Code),
		slog.String("error", re.Message),
		slog.String("category", string(re.Category)),
		slog.Bool("retryable", re.Retryable),
	}
	if re.Cause != nil {
		attrs = append(attrs, slog.String("cause", re.Cause.Error()))
	}
	for k, v := range re.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}
	return attrs
}
