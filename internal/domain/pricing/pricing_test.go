package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBucketPartition_DefaultBucketsAreValid(t *testing.T) {
	assert.NoError(t, ValidateBucketPartition(DefaultChildAgeBuckets))
}

func TestValidateBucketPartition_RejectsGap(t *testing.T) {
	buckets := []ChildAgeBucket{
		{Number: 1, MinAge: 0, MaxAge: 4},
		{Number: 2, MinAge: 6, MaxAge: 12},
		{Number: 3, MinAge: 13, MaxAge: 17},
	}
	assert.Error(t, ValidateBucketPartition(buckets))
}

func TestValidateBucketPartition_RejectsOverlap(t *testing.T) {
	buckets := []ChildAgeBucket{
		{Number: 1, MinAge: 0, MaxAge: 6},
		{Number: 2, MinAge: 5, MaxAge: 12},
		{Number: 3, MinAge: 13, MaxAge: 17},
	}
	assert.Error(t, ValidateBucketPartition(buckets))
}

func TestValidateBucketPartition_RequiresExactlyThree(t *testing.T) {
	buckets := []ChildAgeBucket{
		{Number: 1, MinAge: 0, MaxAge: 17},
	}
	assert.Error(t, ValidateBucketPartition(buckets))
}

func TestBucketFor_ResolvesCorrectBucket(t *testing.T) {
	assert.Equal(t, 1, BucketFor(DefaultChildAgeBuckets, 3))
	assert.Equal(t, 2, BucketFor(DefaultChildAgeBuckets, 10))
	assert.Equal(t, 3, BucketFor(DefaultChildAgeBuckets, 17))
	assert.Equal(t, 0, BucketFor(DefaultChildAgeBuckets, 99))
}

func TestNightlyPrice_PrefersPaxRateOverBaseRate(t *testing.T) {
	base := int64(9000)
	ari := ariNight{baseRateCents: &base}
	rate := &rateNight{
		paxCents:    map[int]int64{2: 12000},
		bucketCents: map[int]int64{1: 1500},
	}
	price, ok := nightlyPrice(rate, ari, 2, []int{3}, DefaultChildAgeBuckets)
	assert.True(t, ok)
	assert.Equal(t, int64(13500), price)
}

func TestNightlyPrice_FallsBackToBaseRateWhenNoPaxColumn(t *testing.T) {
	base := int64(8000)
	ari := ariNight{baseRateCents: &base}
	rate := &rateNight{paxCents: map[int]int64{}, bucketCents: map[int]int64{}}
	price, ok := nightlyPrice(rate, ari, 2, nil, DefaultChildAgeBuckets)
	if !ok || price != 8000 {
		t.Fatalf("expected fallback to base rate 8000, got ok=%v price=%v", ok, price)
	}
}

func TestNightlyPrice_UnavailableWhenNeitherExists(t *testing.T) {
	ari := ariNight{}
	_, ok := nightlyPrice(nil, ari, 2, nil, DefaultChildAgeBuckets)
	if ok {
		t.Fatal("expected not ok when neither pax rate nor base rate is present")
	}
}
