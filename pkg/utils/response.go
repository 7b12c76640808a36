package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 以JSON编码写出响应体。错误消息可能包含中文，显式声明 utf-8。
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

// RespondError 以统一的 {"error": …} 结构写出错误响应。
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}
