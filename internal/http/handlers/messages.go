package handlers

import (
	"fmt"

	"qrbatch/internal/middleware"
)

type messageKey string

const (
	msgInvalidBody        messageKey = "invalid_body"
	msgMissingParams      messageKey = "missing_params"
	msgBackgroundNotFound messageKey = "background_not_found"
	msgAmbiguousAsset     messageKey = "ambiguous_asset"
	msgProcessFailed      messageKey = "process_failed"
	msgProcessed          messageKey = "processed"
	msgFileNotFound       messageKey = "file_not_found"
	msgDownloadFailed     messageKey = "download_failed"
	msgNoFilesSelected    messageKey = "no_files_selected"
	msgNoFilesExist       messageKey = "no_files_exist"
	msgBatchDownloadFail  messageKey = "batch_download_failed"
	msgListFailed         messageKey = "list_failed"
	msgListed             messageKey = "listed"
	msgHealthy            messageKey = "healthy"
)

var catalog = map[string]map[messageKey]string{
	middleware.LocaleZH: {
		msgInvalidBody:        "请求格式错误",
		msgMissingParams:      "缺少必要的参数",
		msgBackgroundNotFound: "背景图片未找到",
		msgAmbiguousAsset:     "图片标识不唯一",
		msgProcessFailed:      "图片处理失败",
		msgProcessed:          "成功处理 %d 张图片",
		msgFileNotFound:       "文件未找到",
		msgDownloadFailed:     "文件下载失败",
		msgNoFilesSelected:    "请提供要下载的文件列表",
		msgNoFilesExist:       "没有找到可下载的文件",
		msgBatchDownloadFail:  "批量下载失败",
		msgListFailed:         "获取文件列表失败",
		msgListed:             "共 %d 个文件",
		msgHealthy:            "图片处理服务运行中",
	},
	middleware.LocaleEN: {
		msgInvalidBody:        "Invalid request body",
		msgMissingParams:      "Missing required parameters",
		msgBackgroundNotFound: "Background image not found",
		msgAmbiguousAsset:     "Asset id matches more than one file",
		msgProcessFailed:      "Image processing failed",
		msgProcessed:          "Processed %d images",
		msgFileNotFound:       "File not found",
		msgDownloadFailed:     "File download failed",
		msgNoFilesSelected:    "Provide the list of files to download",
		msgNoFilesExist:       "None of the requested files exist",
		msgBatchDownloadFail:  "Batch download failed",
		msgListFailed:         "Failed to list files",
		msgListed:             "%d files",
		msgHealthy:            "Image processing server is running",
	},
}

func localize(locale string, key messageKey, args ...any) string {
	msgs, ok := catalog[locale]
	if !ok {
		msgs = catalog[middleware.LocaleZH]
	}
	format, ok := msgs[key]
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
