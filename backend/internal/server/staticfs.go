package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

type staticFS struct {
	base http.FileSystem
}

// NewStaticFS 返回 /static 使用的文件系统：关闭目录列表，隐藏以点开头的文件。
func NewStaticFS(dir string) http.FileSystem {
	return &staticFS{base: gin.Dir(dir, false)}
}

func (fs *staticFS) Open(name string) (http.File, error) {
	for _, part := range strings.Split(strings.TrimPrefix(name, "/"), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return nil, os.ErrNotExist
		}
	}
	return fs.base.Open(name)
}
