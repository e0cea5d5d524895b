package pkg

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var logDir string

// dailyWriter 按天切分日志文件，文件名形如 2026-08-31.log
type dailyWriter struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
}

func (w *dailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := time.Now().Format("2006-01-02")
	if w.file == nil || day != w.day {
		if w.file != nil {
			w.file.Close()
		}
		f, err := os.OpenFile(filepath.Join(w.dir, day+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			// 文件打开失败时只写 stdout，不阻断服务
			fmt.Fprintf(os.Stderr, "open log file failed: %v\n", err)
			return len(p), nil
		}
		w.file = f
		w.day = day
	}
	return w.file.Write(p)
}

// InitLogger 将默认 slog 输出替换为 stdout + 按天日志文件
func InitLogger(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	logDir = dir

	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}

	w := &dailyWriter{dir: dir}
	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, w), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// LogDir 当前日志目录
func LogDir() string {
	return logDir
}

type LogFileInfo struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"modTime"` // epoch 毫秒
}

type LogStatsInfo struct {
	TotalFiles int   `json:"totalFiles"`
	TotalSize  int64 `json:"totalSize"`
}

// validLogName 只允许裸文件名且必须以 .log 结尾，防止路径穿越
func validLogName(name string) bool {
	return name != "" && name == filepath.Base(name) && strings.HasSuffix(name, ".log")
}

// ListLogFiles 返回日志目录下所有 .log 文件，按名称倒序（新日期在前）
func ListLogFiles() ([]LogFileInfo, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil, err
	}
	files := make([]LogFileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFileInfo{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().UnixMilli(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// LogStats 日志文件总量统计
func LogStats() (LogStatsInfo, error) {
	files, err := ListLogFiles()
	if err != nil {
		return LogStatsInfo{}, err
	}
	stats := LogStatsInfo{TotalFiles: len(files)}
	for _, f := range files {
		stats.TotalSize += f.Size
	}
	return stats, nil
}

// ReadLogFile 分页读取单个日志文件，offset/limit 以行为单位
func ReadLogFile(name string, limit, offset int) ([]string, int, error) {
	if !validLogName(name) {
		return nil, 0, fmt.Errorf("invalid log file name: %s", name)
	}
	f, err := os.Open(filepath.Join(logDir, name))
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}

	total := len(lines)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return lines[offset:end], total, nil
}

// DeleteLogFile 删除单个日志文件
func DeleteLogFile(name string) error {
	if !validLogName(name) {
		return fmt.Errorf("invalid log file name: %s", name)
	}
	return os.Remove(filepath.Join(logDir, name))
}

// ClearLogs 清理日志文件，keepToday 时保留当天文件，返回删除数量
func ClearLogs(keepToday bool) (int, error) {
	files, err := ListLogFiles()
	if err != nil {
		return 0, err
	}
	today := time.Now().Format("2006-01-02") + ".log"
	deleted := 0
	for _, f := range files {
		if keepToday && f.Name == today {
			continue
		}
		if err := os.Remove(filepath.Join(logDir, f.Name)); err != nil {
			slog.Warn("remove log file failed", "file", f.Name, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
