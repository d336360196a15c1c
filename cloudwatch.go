package main

import (
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
)

// metricPublisher sends the outcome of a run to CloudWatch.
type metricPublisher struct {
	client    cloudwatchiface.CloudWatchAPI
	namespace string
	name      string
	now       func() time.Time
}

func newMetricPublisher(sess *session.Session, namespace, name string) *metricPublisher {
	return &metricPublisher{
		client:    cloudwatch.New(sess),
		namespace: namespace,
		name:      name,
		now:       time.Now,
	}
}

func (m *metricPublisher) datum(metric string, value float64, unit string) *cloudwatch.MetricDatum {
	return &cloudwatch.MetricDatum{
		Dimensions: []*cloudwatch.Dimension{
			{
				Name:  aws.String("Experiment"),
				Value: aws.String(m.name),
			},
		},
		MetricName: aws.String(metric),
		Timestamp:  aws.Time(m.now()),
		Unit:       aws.String(unit),
		Value:      aws.Float64(value),
	}
}

func (m *metricPublisher) publish(r *report) error {
	data := []*cloudwatch.MetricDatum{
		m.datum("sgd.distance_to_truth", r.truthDistance, cloudwatch.StandardUnitNone),
		m.datum("sgd.distance_to_reference", r.referenceDistance, cloudwatch.StandardUnitNone),
		m.datum("sgd.epochs", float64(r.result.Epochs), cloudwatch.StandardUnitCount),
		m.datum("sgd.updates", float64(r.result.Updates), cloudwatch.StandardUnitCount),
		m.datum("sgd.duration", float64(r.elapsed)/float64(time.Millisecond), cloudwatch.StandardUnitMilliseconds),
	}
	if r.rateOK {
		data = append(data, m.datum("sgd.convergence_rate", r.rate, cloudwatch.StandardUnitNone))
	}

	// CloudWatch rejects NaN and Inf, a diverged run still reports its counters
	valid := data[:0]
	for _, d := range data {
		if v := aws.Float64Value(d.Value); math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		valid = append(valid, d)
	}

	_, err := m.client.PutMetricData(&cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: valid,
	})
	if err != nil {
		return fmt.Errorf("could not publish metrics to %s: %v", m.namespace, err)
	}
	return nil
}
