package service

import (
	"errors"

	"github.com/tidwall/gjson"
)

// Before 从聊天补全请求体中提取出的生成参数
type Before struct {
	Model  string
	Stream bool
	Size   string
	Prompt string
	Images []string
}

// BeforeChat 解析原始请求体。
// 提示词与参考图取自最后一条 user 消息：字符串内容直接作为提示词；
// 数组内容取第一个 text 片段的文本，并收集全部 image_url 条目。
// 没有 user 消息时 Prompt 为空，由适配器补默认提示词。
func BeforeChat(data []byte) (*Before, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid request body")
	}

	before := &Before{
		Model:  gjson.GetBytes(data, "model").String(),
		Stream: gjson.GetBytes(data, "stream").Bool(),
		Size:   gjson.GetBytes(data, "size").String(),
	}

	messages := gjson.GetBytes(data, "messages").Array()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Get("role").String() != "user" {
			continue
		}
		content := messages[i].Get("content")
		if content.Type == gjson.String {
			before.Prompt = content.String()
		} else if content.IsArray() {
			for _, part := range content.Array() {
				switch part.Get("type").String() {
				case "text":
					if before.Prompt == "" {
						before.Prompt = part.Get("text").String()
					}
				case "image_url":
					if url := part.Get("image_url.url").String(); url != "" {
						before.Images = append(before.Images, url)
					}
				}
			}
		}
		break
	}

	return before, nil
}
