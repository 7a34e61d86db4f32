package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/houzhh15/audiomerge/internal/pipeline"
)

func newMergeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "merge",
		Short: "Merge the given files once and print the published URL",
		Example: `  audiomerge merge --file https://a.example/intro.mp3 --file https://a.example/talk.mp3 -o episode-1
  audiomerge merge -f https://a.example/a.mp3 -f https://a.example/b.mp3 -o demo --silence-ms 800 --fade-ms 200 --preset radio --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}

			cfg, settings, log, err := loadRuntime()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg, settings, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := pipeline.ContextWithRequestID(context.Background(), uuid.New().String())
			res, err := a.controller.Merge(ctx, req)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			return printResult(cmd, res, asJSON)
		},
	}

	c.Flags().StringArrayP("file", "f", nil, "输入音频 URL，可重复，按顺序拼接（必选）")
	c.Flags().StringP("output-name", "o", "", "输出名称，用于生成发布 ID（必选）")
	c.Flags().String("format", "", "输出格式: mp3/wav/m4a/ogg/flac（默认取第一个输入的扩展名）")
	c.Flags().String("bitrate", "", "输出码率，如 192k")
	c.Flags().Int("channels", 0, "输出声道数")
	c.Flags().Bool("silence", false, "片段之间插入静音")
	c.Flags().Int("silence-ms", 0, "静音时长（毫秒），设置后隐含 --silence")
	c.Flags().Int("fade-ms", 0, "每个片段的淡入淡出时长（毫秒）")
	c.Flags().String("preset", "", "动态压缩预设，见 presets 子命令")
	c.Flags().Bool("compress", false, "启用动态压缩")
	c.Flags().Bool("no-processing", false, "跳过归一化、淡入淡出与静音处理")
	c.Flags().Bool("json", false, "以 JSON 输出完整结果")
	_ = c.MarkFlagRequired("file")
	_ = c.MarkFlagRequired("output-name")
	return c
}

// requestFromFlags 把命令行参数转换为与 HTTP 请求体等价的 Request
// 未显式设置的三态参数保持 nil，由设置文件决定
func requestFromFlags(cmd *cobra.Command) (pipeline.Request, error) {
	flags := cmd.Flags()
	files, _ := flags.GetStringArray("file")
	name, _ := flags.GetString("output-name")
	format, _ := flags.GetString("format")
	bitrate, _ := flags.GetString("bitrate")
	channels, _ := flags.GetInt("channels")
	preset, _ := flags.GetString("preset")

	req := pipeline.Request{
		Files:          files,
		OutputName:     name,
		OutputFormat:   format,
		Bitrate:        bitrate,
		OutputChannels: channels,
		Preset:         preset,
	}

	if flags.Changed("silence") {
		v, _ := flags.GetBool("silence")
		req.Silence = &v
	}
	if flags.Changed("silence-ms") {
		v, _ := flags.GetInt("silence-ms")
		req.SilenceMs = &v
		if req.Silence == nil {
			on := true
			req.Silence = &on
		}
	}
	if flags.Changed("fade-ms") {
		v, _ := flags.GetInt("fade-ms")
		req.FadeMs = &v
	}
	if flags.Changed("compress") {
		v, _ := flags.GetBool("compress")
		req.ApplyCompression = &v
	}
	if flags.Changed("no-processing") {
		v, _ := flags.GetBool("no-processing")
		enabled := !v
		req.ProcessingEnabled = &enabled
	}

	if len(req.Files) == 0 {
		return pipeline.Request{}, fmt.Errorf("at least one --file is required")
	}
	return req, nil
}

func printResult(cmd *cobra.Command, res *pipeline.Result, asJSON bool) error {
	out := cmd.OutOrStdout()
	if !asJSON {
		fmt.Fprintln(out, res.FinalURL)
		return nil
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}
