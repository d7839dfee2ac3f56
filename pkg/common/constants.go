package common

const (
	RedisStreamSchedulerTaskExecution = "schedule.task.execution"
	RedisStreamAccountSync            = "account.sync"
	RedisStreamCallExtraction         = "call.extraction"
	RedisStreamPriceFetch             = "price.fetch"

	RedisStreamGroup    = "executor-group"
	RedisStreamConsumer = "executor-consumer"
)
