package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"news-rag-go/internal/config"
	"news-rag-go/pkg/kafka"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/storage"

	"github.com/spf13/cobra"
)

// publishCMD 把 JSON 文件中的文章发送到入库主题，由运行中的服务消费。
func publishCMD(cfgPath *string) *cobra.Command {
	var file string
	var publish = &cobra.Command{
		Use:   "publish",
		Short: "Publish articles from a JSON file to the ingestion topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
			defer log.Sync()

			if cfg.Kafka.Brokers == "" {
				return errors.New("kafka.brokers is not configured")
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			articles, err := storage.DecodeArticles(f)
			if err != nil {
				return err
			}
			for i, a := range articles {
				if err := a.Validate(); err != nil {
					return fmt.Errorf("article %d: %w", i, err)
				}
			}

			w := kafka.NewProducer(cfg.Kafka)
			defer w.Close()
			if err := kafka.ProduceArticleTasks(context.Background(), w, articles); err != nil {
				return err
			}
			log.Infof("已发送 %d 篇文章到主题 '%s'", len(articles), cfg.Kafka.Topic)
			return nil
		},
	}
	publish.Flags().StringVarP(&file, "file", "f", "articles.json", "JSON array of articles")
	return publish
}
