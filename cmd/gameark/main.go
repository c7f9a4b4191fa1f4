// Command gameark 是桌游推荐服务的命令行入口。
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
