// Package autoload 註冊所有內建的 LLM Providers。
// main 只需 blank import 本套件即可啟用全部 Provider Factory。
package autoload

import (
	_ "mentorio/pkg/llm/gemini"
	_ "mentorio/pkg/llm/ollama"
	_ "mentorio/pkg/llm/openailm"
)
