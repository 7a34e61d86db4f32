// audiomerge - 音频拼接服务与命令行工具
//
// 用法:
//
//	audiomerge serve                                  启动 HTTP 服务 (POST /merge-audio)
//	audiomerge merge --file URL --file URL -o name    单次合并并发布
//	audiomerge presets                                列出压缩预设与输出格式
//
// 配置通过环境变量提供，见 internal/config。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "audiomerge",
		Short: "Concatenate remote audio clips and publish the result",
		Long: `audiomerge downloads a list of audio files, optionally normalizes,
fades and separates them with silence, joins them into a single file and
uploads it to the configured host.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newPresetsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
