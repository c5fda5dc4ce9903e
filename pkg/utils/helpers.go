package utils

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"gorm.io/datatypes"
)

// StringPtr 返回字符串指针
func StringPtr(s string) *string {
	return &s
}

// CalculateMD5 计算字节切片的MD5（仅用于去重指纹，不做安全用途）
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// ToJSON 将任意值序列化为datatypes.JSON，失败时退回空对象
func ToJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(jsonBytes)
}
