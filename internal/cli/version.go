package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/studiowebux/lmscli/internal/version"
)

// CheckVersion compares current with the latest release and prints the result
func CheckVersion(ctx context.Context, current, output string, w io.Writer) error {
	format, err := ResolveFormat(output, w)
	if err != nil {
		return err
	}
	res, err := version.Check(ctx, nil, version.ReleaseURL, current)
	if err != nil {
		return err
	}
	if format != FormatTable {
		return writeData(w, format, res)
	}

	if !res.Available {
		_, err = fmt.Fprintf(w, "lmscli %s is up to date\n", res.Current)
		return err
	}
	_, err = fmt.Fprintf(w, "lmscli %s is available (current %s)\n%s\n", res.Latest, res.Current, res.URL)
	return err
}
