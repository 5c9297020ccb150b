package xutil

import "os"

// FileExist 路径存在且为普通文件
func FileExist(filePath string) bool {
	stat, err := os.Stat(filePath)
	return err == nil && !stat.IsDir()
}

// DirExist 路径存在且为目录
func DirExist(filePath string) bool {
	stat, err := os.Stat(filePath)
	return err == nil && stat.IsDir()
}
