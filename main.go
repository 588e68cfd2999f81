package main

import (
	"oss.terrastruct.com/stockflow/lib/xmain"
	"oss.terrastruct.com/stockflow/sfcli"
)

func main() {
	xmain.Main(sfcli.Run)
}
