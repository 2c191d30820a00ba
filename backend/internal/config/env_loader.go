package config

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

// EnvFiles 加载顺序，后面的文件覆盖前面的同名变量，二者都覆盖进程已有的环境变量。
var EnvFiles = []string{".env", ".env.local"}

type envState struct {
	mu       sync.Mutex
	loaded   bool
	disabled bool
	paths    []string
}

var envFiles envState

// LoadEnvFiles 从当前目录逐级向上查找 EnvFiles 并写入进程环境，进程内只执行一次。
// 返回实际读取的文件路径；CONFIG_SKIP_ENV_LOAD=1 时跳过。
func LoadEnvFiles() []string {
	envFiles.mu.Lock()
	defer envFiles.mu.Unlock()

	if envFiles.disabled || os.Getenv("CONFIG_SKIP_ENV_LOAD") == "1" {
		return nil
	}
	if envFiles.loaded {
		return envFiles.paths
	}
	envFiles.loaded = true

	cwd, err := os.Getwd()
	if err != nil {
		return nil
	}
	merged := make(map[string]string)
	for _, name := range EnvFiles {
		path := lookupUpwards(cwd, name)
		if path == "" {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			log.Printf("[config] ignore %s: %v", path, err)
			continue
		}
		for k, v := range values {
			merged[k] = v
		}
		envFiles.paths = append(envFiles.paths, path)
	}
	for k, v := range merged {
		_ = os.Setenv(k, v)
	}
	if len(envFiles.paths) > 0 {
		log.Printf("[config] env files: %v", envFiles.paths)
	}
	return envFiles.paths
}

// DisableEnvFilesForTest 关闭 .env 加载，返回的函数恢复原状态。
func DisableEnvFilesForTest() (restore func()) {
	envFiles.mu.Lock()
	envFiles.disabled = true
	envFiles.mu.Unlock()
	return func() {
		envFiles.mu.Lock()
		envFiles.disabled = false
		envFiles.loaded = false
		envFiles.paths = nil
		envFiles.mu.Unlock()
	}
}

// lookupUpwards 返回 start 及其祖先目录中第一个名为 name 的普通文件。
func lookupUpwards(start, name string) string {
	for dir := start; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
		if filepath.Dir(dir) == dir {
			return ""
		}
	}
}
