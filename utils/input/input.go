package input

import (
	"context"
	"fmt"
	"os"
	"time"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/multimodal-sim/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v2"
)

var log = logrus.WithField("module", "input")

const mongoTimeout = 60 * time.Second

// Load 加载场景数据
// 功能：根据配置从文件或MongoDB加载场景，并检查数据正确性
// 参数：c-输入配置
// 返回：场景数据，路网或公共交通数据有误时返回错误
// 算法说明：
// 1. scenario.file非空时从YAML文件加载（严格模式）
// 2. 否则连接uri指定的MongoDB，在db.col中按name查找一个场景文档
// 3. 检查数据：路网、资源、线路的错误直接返回；出行者数据有误时忽略该出行者
func Load(c config.Input) (*Scenario, error) {
	var (
		s   *Scenario
		err error
	)
	switch {
	case c.Scenario.File != "":
		s, err = LoadFile(c.Scenario.File)
	case c.URI != "":
		s, err = loadMongo(c.URI, c.Scenario)
	default:
		return nil, fmt.Errorf("input: scenario.file or uri must be specified")
	}
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	log.Infof("scenario %q: %d nodes, %d edges, %d stations, %d lines, %d persons",
		s.Name, len(s.Nodes), len(s.Edges), len(s.Stations), len(s.Lines), len(s.Persons))
	return s, nil
}

// LoadFile 从YAML文件读取场景，不做检查
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse 解析YAML格式的场景，未知字段报错
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

func loadMongo(uri string, path config.InputPath) (*Scenario, error) {
	if path.DB == "" || path.Col == "" {
		return nil, fmt.Errorf("input: scenario.db and scenario.col are required for mongodb")
	}
	client := mongoutil.NewClient(uri)
	defer client.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	filter := bson.M{}
	if path.Name != "" {
		filter["name"] = path.Name
	}
	log.Infof("start fetching from %s.%s", path.DB, path.Col)
	var s Scenario
	if err := client.Database(path.DB).Collection(path.Col).FindOne(ctx, filter).Decode(&s); err != nil {
		return nil, fmt.Errorf("fetch scenario %q from %s.%s: %w", path.Name, path.DB, path.Col, err)
	}
	log.Infof("finish fetching from %s.%s", path.DB, path.Col)
	return &s, nil
}
