package config

// Config 配置主体
type Config struct {
	Server                   ServerConfig        `mapstructure:"server"`
	DB                       DBConfig            `mapstructure:"database"`
	Redis                    RedisConfig         `mapstructure:"redis"`
	Mongo                    MongoConfig         `mapstructure:"mongo"`
	MinIO                    MinIOConfig         `mapstructure:"minio"`
	Logstash                 LogstashConfig      `mapstructure:"logstash"`
	Auth                     AuthConfig          `mapstructure:"auth"`
	WS                       WSConfig            `mapstructure:"ws"`
	Notification             NotificationConfig  `mapstructure:"notification"`
	Kafka                    KafkaConfig         `mapstructure:"kafka"`
	KafkaLikeConsumer        KafkaConsumerConfig `mapstructure:"kafka_like_consumer"`
	KafkaCollectionConsumer  KafkaConsumerConfig `mapstructure:"kafka_collection_consumer"`
	KafkaCommentConsumer     KafkaConsumerConfig `mapstructure:"kafka_comment_consumer"`
	KafkaUserFollowsConsumer KafkaConsumerConfig `mapstructure:"kafka_user_follow_consumer"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	MainBucket       string `mapstructure:"main_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	ExternalUseSSL   bool   `mapstructure:"external_use_ssl"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// AuthConfig 凭据校验配置
// Provider: local 使用本地 JWT 校验, remote 调用身份服务
type AuthConfig struct {
	Provider      string `mapstructure:"provider"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	RemoteURL     string `mapstructure:"remote_url"`
	RemoteTimeout int    `mapstructure:"remote_timeout"`
}

// WSConfig 长连接配置，时间单位均为秒
type WSConfig struct {
	Path             string `mapstructure:"path"`
	HandshakeTimeout int    `mapstructure:"handshake_timeout"`
	WriteTimeout     int    `mapstructure:"write_timeout"`
	ReadLimit        int64  `mapstructure:"read_limit"`
	IdleTimeout      int    `mapstructure:"idle_timeout"`
	EvictIdle        bool   `mapstructure:"evict_idle"`
	SweepSpec        string `mapstructure:"sweep_spec"`
}

// NotificationConfig 通知存储配置
// Store: mongo | memory
type NotificationConfig struct {
	Store        string `mapstructure:"store"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaConsumerConfig struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}
