package repository

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucksec/jobstatus/internal/domain"
	"gopkg.in/yaml.v3"
)

// 支持的报表格式
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ReportRepository 报表存储接口
type ReportRepository interface {
	// Save 将报表写入 path，rows 为空时仍写出表头
	Save(path, format string, rows []domain.ReportRow) error
}

// reportRepository 基于本地文件的报表存储
type reportRepository struct{}

// NewReportRepository 创建报表存储实例
func NewReportRepository() ReportRepository {
	return &reportRepository{}
}

// Save 编码报表并写入文件
// 先写入同目录下的临时文件再重命名，失败时不会留下不完整的报表
func (r *reportRepository) Save(path, format string, rows []domain.ReportRow) error {
	data, err := Encode(format, rows)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建报表目录失败: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入报表失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("写入报表失败: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("设置报表权限失败: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("保存报表失败: %w", err)
	}
	return nil
}

// Encode 按格式编码报表
func Encode(format string, rows []domain.ReportRow) ([]byte, error) {
	if rows == nil {
		rows = []domain.ReportRow{}
	}

	switch strings.ToLower(format) {
	case FormatCSV, "":
		return encodeCSV(rows)
	case FormatJSON:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("编码 JSON 失败: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("编码 YAML 失败: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("不支持的报表格式: %s", format)
	}
}

func encodeCSV(rows []domain.ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(domain.ReportFields); err != nil {
		return nil, fmt.Errorf("写入表头失败: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.Values()); err != nil {
			return nil, fmt.Errorf("写入报表行失败: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("编码 CSV 失败: %w", err)
	}
	return buf.Bytes(), nil
}
