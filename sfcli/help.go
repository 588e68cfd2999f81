package sfcli

import (
	"fmt"
	"path/filepath"

	"oss.terrastruct.com/stockflow/lib/version"
	"oss.terrastruct.com/stockflow/lib/xmain"
)

func help(ms *xmain.State) {
	fmt.Fprintf(ms.Stdout, `%[1]s %[2]s
Usage:
  %[1]s [--watch=false] [--pad=20] [render] file.json [file.svg | file.png]
  %[1]s serve [--host=localhost] [--port=0] [--db=path] [--open]
  %[1]s version

%[1]s renders the stock and flow diagram in file.json to file.svg or file.png.
It defaults to file.svg if an output path is not provided.

Use - to have %[1]s read from stdin or write to stdout.

Flags:
%[3]s

Subcommands:
  %[1]s render file.json - Renders file.json, the default subcommand
  %[1]s serve - Serves the project editor and API
  %[1]s version - Prints the version
`, filepath.Base(ms.Name), version.Version, ms.Opts.Help())
}
