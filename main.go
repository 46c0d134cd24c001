package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/multimodal-sim/metrics"
	"github.com/tsinghua-fib-lab/multimodal-sim/output"
	"github.com/tsinghua-fib-lab/multimodal-sim/task"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/config"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/input"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 环境变量文件，不存在时忽略
	envFile = flag.String("env", ".env", "dotenv file path (MONGO_URI, NATS_URL, METRICS_ADDR)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "multimodal")
)

// loadConfig 读取配置文件或Base64编码的配置数据，并用环境变量覆盖连接地址
func loadConfig() config.Config {
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	c, err := config.Load(file)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warnf("load %s: %v", *envFile, err)
		}
	}
	config.ApplyEnv(&c)
	return c
}

// newSink 根据输出配置创建出行记录输出，未配置任何输出时写日志
func newSink(c config.Output) output.Sink {
	sinks := make(output.MultiSink, 0)
	if c.Mongo.Col != "" {
		s, err := output.NewMongoSink(c.Mongo.URI, c.Mongo.DB, c.Mongo.Col)
		if err != nil {
			log.Panicf("mongo output: %v", err)
		}
		sinks = append(sinks, s)
	}
	if c.NATS.URL != "" {
		s, err := output.NewNATSSink(c.NATS.URL, c.NATS.Subject)
		if err != nil {
			log.Panicf("nats output: %v", err)
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 0 {
		return output.LogSink{}
	}
	return sinks
}

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	c := loadConfig()
	log.Infof("%+v", c)

	scenario, err := input.Load(c.Input)
	if err != nil {
		log.Panicf("load input: %v", err)
	}

	collector := metrics.NewCollector()
	if c.Output.MetricsAddr != "" {
		srv := collector.Serve(c.Output.MetricsAddr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	t, err := task.NewContext(c, scenario, newSink(c.Output), collector)
	if err != nil {
		log.Panicf("init task: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Warnf("receive %v, stop after current step", s)
		t.Stop()
	}()

	t.Run()
	if err := t.Close(); err != nil {
		log.Errorf("%v", err)
	}
}
