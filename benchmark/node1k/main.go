package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	iotGrpc "liyu1981.xyz/soil-monitor-service/pkg/grpc"
)

var maxNodes int = 2000
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var crops = []string{"tomato", "maize", "rice", "wheat", "default"}

var grpcClient *iotGrpc.SensorIngestClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

func main() {
	nodeIDs := make([]string, maxNodes)
	for i := range maxNodes {
		nodeIDs[i] = "node_" + uuid.NewString()
	}
	fmt.Printf("generated %v node IDs\n", maxNodes)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = iotGrpc.NewSensorIngestClient(conn)

	fmt.Printf("gRPC server verified and connected\n")

	var startTime time.Time
	var usedTime time.Duration

	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxNodes {
		wg.Add(1)
		go func() {
			postReading(nodeIDs[i])
			fmt.Printf("\rregistered node %v", i)
			wg.Done()
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\rregistered %v nodes: used time=%v seconds, throughput=%v action/second\n",
		maxNodes, usedTime.Seconds(), float64(maxNodes)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxNodes {
		wg.Add(1)
		go func() {
			doAction(nodeIDs[i])
			wg.Done()
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\n\rdid actions for %v nodes: used time=%v seconds, throughput=%v action/second\n",
		maxNodes, usedTime.Seconds(), float64(maxNodes*3)/usedTime.Seconds(),
	)
}

func flipCoin() bool {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(100000)%2 == 0
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

func rndCrop() string {
	rndMu.Lock()
	defer rndMu.Unlock()
	return crops[rnd.Intn(len(crops))]
}

func readingPayload(nodeID string) map[string]any {
	return map[string]any{
		"node_id":            nodeID,
		"moisture":           rndFloat64(10.0, 90.0, 1),
		"temperature":        rndFloat64(5.0, 45.0, 1),
		"ph":                 rndFloat64(4.5, 8.5, 2),
		"nitrogen":           rndFloat64(0.0, 200.0, 0),
		"phosphorus":         rndFloat64(0.0, 100.0, 0),
		"potassium":          rndFloat64(0.0, 300.0, 0),
		"battery_percentage": rndFloat64(5.0, 100.0, 0),
		"timestamp":          time.Now().Format(time.RFC3339),
	}
}

func postReading(nodeID string) {
	payload := readingPayload(nodeID)

	if flipCoin() {
		jsonData, _ := json.Marshal(payload)
		resp, err := http.Post(fmt.Sprintf("http://%s/ingest", httpHostPort), "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			fmt.Printf("\nresponse status code != 201: %v\n", resp.Status)
		}
	} else {
		req, err := structpb.NewStruct(payload)
		if err != nil {
			panic(err)
		}
		resp, err := grpcClient.PostReading(context.Background(), req)
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		if !resp.GetFields()["success"].GetBoolValue() {
			fmt.Printf("\nresponse success = false: %v\n", resp)
		}
	}
}

func doAction(nodeID string) {
	actions := []func(){
		genAssignCropAction(nodeID),
		genGetAlertsAction(nodeID),
		genPostReadingAction(nodeID),
	}
	actionNames := []string{
		"AssignCrop",
		"GetAlerts",
		"PostReading",
	}
	rndMu.Lock()
	rnd.Shuffle(len(actions), func(i, j int) {
		actions[i], actions[j] = actions[j], actions[i]
		actionNames[i], actionNames[j] = actionNames[j], actionNames[i]
	})
	pause := time.Duration(100+rnd.Int31n(1000)) * time.Millisecond
	rndMu.Unlock()
	for index, action := range actions {
		action()
		fmt.Printf("\rexecuted action %v for node %v", actionNames[index], nodeID)
		time.Sleep(pause)
	}
}

func genPostReadingAction(nodeID string) func() {
	return func() {
		postReading(nodeID)
	}
}

func genAssignCropAction(nodeID string) func() {
	return func() {
		crop := rndCrop()

		if flipCoin() {
			jsonData, _ := json.Marshal(map[string]string{"crop_type": crop})
			resp, err := http.Post(fmt.Sprintf("http://%s/nodes/%s/crop", httpHostPort, nodeID), "application/json", bytes.NewBuffer(jsonData))
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
				return
			}
			defer resp.Body.Close()
		} else {
			req, _ := structpb.NewStruct(map[string]any{"node_id": nodeID, "crop_type": crop})
			resp, err := grpcClient.AssignCrop(context.Background(), req)
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
				return
			}
			if !resp.GetFields()["success"].GetBoolValue() {
				fmt.Printf("\nresponse success = false: %v\n", resp)
			}
		}
	}
}

func genGetAlertsAction(nodeID string) func() {
	return func() {
		if flipCoin() {
			resp, err := http.Get(fmt.Sprintf("http://%s/nodes/%s/alerts", httpHostPort, nodeID))
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				fmt.Printf("\nresponse status code != 200: %v\n", resp.Status)
			}
		} else {
			req, _ := structpb.NewStruct(map[string]any{"node_id": nodeID})
			resp, err := grpcClient.GetAlerts(context.Background(), req)
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
				return
			}
			if !resp.GetFields()["success"].GetBoolValue() {
				fmt.Printf("\nresponse success = false: %v\n", resp)
			}
		}
	}
}
