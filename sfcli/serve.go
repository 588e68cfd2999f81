package sfcli

import (
	"context"
	"fmt"

	"oss.terrastruct.com/xdefer"

	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/lib/xbrowser"
	"oss.terrastruct.com/stockflow/lib/xhttp"
	"oss.terrastruct.com/stockflow/lib/xmain"
	"oss.terrastruct.com/stockflow/sfserver"
	"oss.terrastruct.com/stockflow/sfstore"
)

type serveOpts struct {
	host string
	port string
	db   string
	open bool
}

func serveCmd(ctx context.Context, ms *xmain.State, opts serveOpts) (err error) {
	defer xdefer.Errorf(&err, "failed to serve")

	ms.Log.SetTS(true)
	store, err := sfstore.Open(ctx, opts.db)
	if err != nil {
		return err
	}
	defer store.Close()
	ms.Log.Info.Printf("using project database %s", humanPath(opts.db))

	l, err := xhttp.Listen(opts.host, opts.port)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("http://%s", l.Addr())
	ms.Log.Success.Printf("listening on %s", url)

	if opts.open {
		err = xbrowser.OpenURL(ctx, ms.Env, url)
		if err != nil {
			ms.Log.Warn.Printf("failed to open browser to %v: %v", url, err)
		}
	}

	ctx = log.Named(ctx, "serve")
	defer log.Sync(ctx)
	s := sfserver.New(ctx, ms.Log, store, nil)
	return s.Serve(ctx, l)
}
